// Package submission classifies the fields of a posted form and ingests them
// into a model.Submission.
//
// A Classification is built once per screen (or per field for field-level
// updates) and places every known name into exactly one category. The
// Ingester walks raw entries in arrival order:
//
//  1. button names resolve the workflow action; an unmapped value aborts the
//     whole submission as a misconfiguration
//  2. acceptable and user fields become form data
//  3. restricted fields are kept apart from form data
//  4. anything else becomes an attachment when the screen allows them
//  5. otherwise the entry is dropped with a warning
//
// Binary content is persisted through a content.Store before the record that
// references it is built. When a submission fails, content already stored for
// it is deleted again.
package submission
