// Package releases lists catalog entries matching the current platform or
// explicit filters, served through the same snapshot-backed resolver the
// installer uses.
package releases
