// Package model describes how a form is presented: field order, labels,
// input kinds and select options. Validation lives on the forms control tree;
// a FormModel only mirrors its paths so front ends know what to prompt for
// and when to surface a control's errors.
package model
