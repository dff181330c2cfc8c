// Command sentinel evaluates medical billing claims for fraud and
// compliance risk. It runs a priority-ordered rule chain and a set of
// scoring engines against each claim and aggregates the signals into a
// composite risk assessment.
package main

func main() {
	Execute()
}
