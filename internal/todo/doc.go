// Package todo defines the task records exchanged with the task backend and
// the checks applied to them.
//
// A task as sent by the backend:
//
//	{
//	  "id": 7,
//	  "title": "Buy milk",
//	  "description": "2 litres",
//	  "status": "active",
//	  "created_at": "2024-01-01T00:00:00Z",
//	  "updated_at": "2024-01-01T00:00:00Z"
//	}
//
// # Validation
//
// Two layers are applied to backend payloads:
//
//  1. JSON Schema validation of the response envelope (draft 2020-12,
//     embedded in the package).
//  2. Struct validation of each decoded Task with go-playground/validator.
//
// Outgoing Draft and Patch values are validated the same way before a request
// is sent. Errors carry a dotted JSON path such as "tasks[2].status".
//
// # Status Values
//
//   - "active": Task is open
//   - "completed": Task is done
package todo
