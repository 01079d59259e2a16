// Package orm is the runtime layer of the object mapper: it executes the
// statements generated for persistent types and compiles typed queries into
// parameterized SQL.
//
// Generated code describes each type with an ObjectTraits (row shape plus
// statement texts), each collection member with a ContainerTraits and each
// projection with a ViewTraits. This package turns those descriptors into
// prepared statements on a connection and keeps them for the life of the
// connection.
//
// # Images and Bindings
//
// An Image is the in-memory row of an object: one Column per persistent
// column, with fixed-width values inline and variable-length values in a
// growable buffer. A Binding is the array of Bind descriptors handed to the
// native client, each pointing at a column's buffer, length, NULL and
// truncation indicators.
//
// Bindings carry a version. It is bumped when a descriptor's buffer or type
// changes (a string outgrew its buffer, for example), never when only the
// content changes. Statements remember the version they last handed to the
// native client and rebind only when it moved:
//
//	img.Set(name, "short")                   // same buffer, no rebind
//	img.Set(name, strings.Repeat("x", 1000)) // buffer regrown, next execute rebinds
//
// # Statements
//
// InsertStatement, SelectStatement, UpdateStatement and DeleteStatement each
// own one prepared native handle. Executing resets the handle, rebinds when
// needed and runs it. Errors are translated on the spot:
//
//   - ErrDuplicateKey: an insert violated a uniqueness constraint
//   - ErrObjectNotFound: an update or delete matched no row
//   - *DatabaseError (matching ErrDatabase): any other native failure
//   - *PreparationError (matching ErrPreparationFailure): preparation failed
//
// Fetching reports FetchSuccess, FetchNoData or FetchTruncated. Truncation is
// not an error: grow the image with GrowTruncated and call Refetch to reload
// just the truncated columns from the current row.
//
// # Statement Sets and the Cache
//
// ObjectStatements bundles the images, bindings and the lazily prepared
// persist, find, update and erase statements of one type. ContainerStatements
// does the same for a collection member, using the owning object's id
// binding as its condition. The StatementCache of a connection builds each
// set once:
//
//	stmts, err := orm.FindObject[Person](conn.Cache())
//	if err != nil {
//	    return err
//	}
//	if err := stmts.Image().Set(1, "Alice"); err != nil {
//	    return err
//	}
//	if err := stmts.Persist(ctx); errors.Is(err, orm.ErrDuplicateKey) {
//	    // already stored
//	}
//
// # Queries
//
// Query accumulates clause fragments and parameters. Typed QueryColumn values
// produce conditions, And, Or and Not combine them, and the clause is
// rendered for the connection's dialect only when the query runs:
//
//	var minAge int32 = 18
//	q := orm.And(
//	    personAge.GreaterEqualArg(orm.Ref(&minAge)),
//	    personName.In("alice", "bob"),
//	)
//	res, err := stmts.Query(ctx, q)
//
// Value arguments are encoded when the query is built; reference arguments
// are read again before every execution.
//
// # Transactions
//
// Database checks out connections from a *sql.DB and implements
// ConnectionPool. A Transaction acquires a connection, issues BEGIN and, on
// Commit or Rollback, frees any pending result before issuing the directive
// and releasing the connection:
//
//	err := db.Transaction(ctx, func(ctx context.Context, tx *orm.Transaction) error {
//	    stmts, err := orm.FindObject[Person](tx.Connection().Cache())
//	    if err != nil {
//	        return err
//	    }
//	    return stmts.Update(ctx)
//	})
//
// # Concurrency
//
// A Connection, its cache, statements and queries are confined to one
// goroutine at a time; nothing in them locks. Database itself is safe for
// concurrent use and hands each connection to one borrower at a time.
package orm
