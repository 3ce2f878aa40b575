// Package compliance implements the validation engine for regulated RPA
// records: identifier generation, lifecycle transition machines, schedule
// monitoring, weight classification, geometry checks, operation constraint
// validation, and operational-claim conflict detection.
//
// Every function in this package is a pure function of its explicit inputs.
// The package holds no state, performs no I/O, and reads no clock; callers
// pass the current record set, configuration tables, and reference time.
package compliance
