// Package datasets defines the raw reference datasets consumed by the option,
// dropdown and consistency services: the dataset keys understood by the Data
// Loader, the array-of-records root of each payload, and typed record shapes.
//
// A raw dataset is the decoded root object returned by the loader, e.g.
//
//	{"parties": [{"id": "P1", "name": "...", "colors": {"primary": "#0a0"}}]}
//
// Records extracts the record list under the dataset root and Decode turns a
// single record into its typed form. Raw records stay available to callers
// that evaluate rules or follow foreign keys by field path.
package datasets
