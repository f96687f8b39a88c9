// Package dataset exposes the project query engine as tools.
//
// Tools:
//   - project_search: filtered search over project records
//   - project_stats: aggregate statistics for a filtered set
//   - contractor_analysis: one contractor's portfolio
//   - geospatial_search: projects within a radius of a point
package dataset
