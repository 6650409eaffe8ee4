// Package uischema parses rjsf-style UI schema documents ("ui:widget",
// "ui:order", "ui:help", ...) into a Hints tree that the model builder uses to
// decorate fields. Free text that ends up in markup (titles, descriptions and
// help) is sanitised with bluemonday before it leaves this package.
package uischema
