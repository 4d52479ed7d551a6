// Package chatflow runs one user's pass through a tool: it greets, asks the
// tool's questions in order, hands the finished transcript to a generator and
// accepts free-form revision requests afterwards.
package chatflow
