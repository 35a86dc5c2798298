// Package constraint evaluates field constraints against field definitions and
// submitted values. Evaluation is a pure function of its inputs.
//
// A constraint is a leaf regex test over one target field plus two optional
// chains. When the leaf holds, every constraint in And must also hold. When
// the leaf fails, the result falls back to whether any constraint in Or holds;
// Or is never consulted as an alternative to a satisfied leaf whose And chain
// fails.
package constraint
