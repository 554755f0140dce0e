// Package model defines the entities shared by every ababil package.
//
// It covers:
//   - Environments and their variables
//   - Auth settings (Postman-style tagged unions) and auth tokens
//   - Draft requests as authored by the user and the resolved requests
//     handed to the transport
//   - Collections and saved requests
//
// Types here carry no behaviour beyond small lookups and copies; resolution
// lives in packages/core/env, packages/auth and packages/core/composer.
package model
