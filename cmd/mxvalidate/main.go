// Command mxvalidate runs the nGraph MXNet validation suites.
package main

import (
	"log"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("mxvalidate: ")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
