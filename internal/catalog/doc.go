// Package catalog persists the reference catalog of known titles and the
// local file index in SQLite.
//
// The Store owns both tables; every other component goes through its query
// surface and never touches the database directly. The schema is created
// lazily: each operation ensures the tables exist before running, so the
// first query against a fresh database returns an empty result instead of
// an error. Checksum collisions across distinct releases are legitimate
// catalog data, so checksum lookups always return lists.
package catalog
