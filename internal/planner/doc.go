// Package planner turns classified source files into conversion jobs and
// defines the outcome a job produces.
//
// A source yields one [Job] per requested target format, in target order.
// Sources that fail the mode's input criterion, and destinations already
// claimed by an earlier source, yield a [Note] instead; the batch runner
// reports notes as scan-time exclusions.
package planner
