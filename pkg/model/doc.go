// Package model defines the form definition types (screens, sections, fields,
// constraints, options, buttons) together with the per-request values that flow
// through rendering and submission ingestion. Definition types are loaded once
// per form version and treated as read-only afterwards; Value, Message and
// Submission instances belong to a single request.
package model
