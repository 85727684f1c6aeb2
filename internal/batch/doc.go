// Package batch verifies fees for every row of a CSV file.
//
// Rows are grouped by normalized query and region so each distinct place is
// looked up once, and the verdict is copied to every row of its group. Groups
// run on a small worker pool. The output table is the input table plus the
// Fee Info, Fee Source and Alert columns.
package batch
