package orm

import "errors"

// Persistent is implemented by generated persistent types. ObjectTraits is
// called on the zero value and must return the same pointer every time.
type Persistent interface {
	ObjectTraits() *ObjectTraits
}

// Viewable is implemented by generated view types.
type Viewable interface {
	ViewTraits() *ViewTraits
}

// StatementCache memoizes statement sets per type on one connection. A set
// is built the first time its type is looked up and lives until the
// connection is closed; there is no eviction.
//
// Like the connection it belongs to, the cache is not safe for concurrent
// use.
type StatementCache struct {
	conn       *Connection
	objects    map[*ObjectTraits]*ObjectStatements
	views      map[*ViewTraits]*ViewStatements
	containers map[*ContainerTraits]*ContainerStatements
}

func newStatementCache(conn *Connection) *StatementCache {
	return &StatementCache{
		conn:       conn,
		objects:    make(map[*ObjectTraits]*ObjectStatements),
		views:      make(map[*ViewTraits]*ViewStatements),
		containers: make(map[*ContainerTraits]*ContainerStatements),
	}
}

// FindObject returns the statement set of T, building it on first use.
//
// Example:
//
//	stmts, err := orm.FindObject[Person](conn.Cache())
//	if err != nil {
//	    return err
//	}
//	_ = stmts.SetID(int64(42))
//	found, err := stmts.Find(ctx)
func FindObject[T Persistent](c *StatementCache) (*ObjectStatements, error) {
	var zero T
	return c.Object(zero.ObjectTraits())
}

// Object returns the statement set described by traits, building it on
// first use. The traits pointer identifies the type.
func (c *StatementCache) Object(traits *ObjectTraits) (*ObjectStatements, error) {
	if s, ok := c.objects[traits]; ok {
		return s, nil
	}
	if c.conn.closed {
		return nil, ErrConnectionClosed
	}
	s, err := NewObjectStatements(c.conn, traits)
	if err != nil {
		return nil, err
	}
	c.objects[traits] = s
	c.conn.logDebug("cached object statements", map[string]interface{}{"object": traits.Name})
	return s, nil
}

// FindView returns the statement set of view type T, building it on first use.
func FindView[T Viewable](c *StatementCache) (*ViewStatements, error) {
	var zero T
	return c.View(zero.ViewTraits())
}

// View returns the statement set described by traits, building it on first
// use.
func (c *StatementCache) View(traits *ViewTraits) (*ViewStatements, error) {
	if s, ok := c.views[traits]; ok {
		return s, nil
	}
	if c.conn.closed {
		return nil, ErrConnectionClosed
	}
	s, err := NewViewStatements(c.conn, traits)
	if err != nil {
		return nil, err
	}
	c.views[traits] = s
	return s, nil
}

// Container returns a standalone container statement set, building it on
// first use. The caller installs the owner id binding.
func (c *StatementCache) Container(traits *ContainerTraits) (*ContainerStatements, error) {
	if s, ok := c.containers[traits]; ok {
		return s, nil
	}
	if c.conn.closed {
		return nil, ErrConnectionClosed
	}
	s, err := NewContainerStatements(c.conn, traits)
	if err != nil {
		return nil, err
	}
	c.containers[traits] = s
	return s, nil
}

// Len returns the number of cached statement sets.
func (c *StatementCache) Len() int {
	return len(c.objects) + len(c.views) + len(c.containers)
}

func (c *StatementCache) close() error {
	var errs []error
	for _, s := range c.objects {
		errs = append(errs, s.Close())
	}
	for _, s := range c.views {
		errs = append(errs, s.Close())
	}
	for _, s := range c.containers {
		errs = append(errs, s.Close())
	}
	clear(c.objects)
	clear(c.views)
	clear(c.containers)
	return errors.Join(errs...)
}
