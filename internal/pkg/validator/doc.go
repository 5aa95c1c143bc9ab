// Package validator validates request structs.
//
// Use cases depend on the Validator interface; V10Validator is the
// go-playground/validator implementation with English messages and the
// custom rules registered by this package.
package validator
