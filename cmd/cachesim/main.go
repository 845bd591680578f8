// Package main provides the cachesim command, which runs traffic patterns
// through the cycle-stepped cache and checks it against the reference model.
package main

func main() {
	Execute()
}
