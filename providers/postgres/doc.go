// Package postgres implements authcore.UserProvider over a Postgres users
// table via database/sql and lib/pq.
//
// The users table keeps username and email as separate unique columns;
// GetUserByIdentifier matches a presented identifier against either, which
// is what makes "log in with username or email" work without the caller
// knowing which namespace it holds.
package postgres
