// Package cmd implements the ababil CLI commands using Cobra.
//
// Available commands:
//   - send: Compose and send request files or saved requests
//   - compose: Print resolved requests without sending them
//   - extract: Find auth tokens in a response
//   - env, collection, request: Manage stored environments, collections
//     and saved requests
//   - validate: Check request files against the schema
//   - init: Write a starter config, environment and request file
//   - version: Show version information
//
// Data lives in a SQLite database under the configured data directory.
package cmd
