// Package siteconfig generates per-site configuration files from a library
// of site-type templates.
//
// The template library is a JSON document whose "defaultTemplates" member
// maps a site type to a template object. Generate clones the template for
// the requested type, stamps the site identity onto it and writes it to
// <output-dir>/<site-id>.json. Key order of the template is preserved and
// non-ASCII text is written as is.
package siteconfig
