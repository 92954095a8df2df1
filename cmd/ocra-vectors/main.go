// Command ocra-vectors computes OCRA responses for a suite and a list of
// challenge questions. Useful for cross-checking other implementations and
// for producing interoperability test vectors.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ocrauth/ocrauth/ocra"
)

type vector struct {
	Suite     string `json:"suite"`
	Question  string `json:"question"`
	Counter   string `json:"counter,omitempty"`
	Session   string `json:"session,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Response  string `json:"response"`
}

func main() {
	var (
		suiteStr  = flag.String("suite", "OCRA-1:HOTP-SHA1-6:QN08", "OCRA suite string")
		key       = flag.String("key", "3132333435363738393031323334353637383930", "shared key, hex")
		counter   = flag.String("counter", "", "counter value, hex (suites with a C input)")
		pin       = flag.String("pin", "", "PIN/password hash, hex (suites with a P input)")
		session   = flag.String("session", "", "session information, hex (suites with an S input)")
		timestamp = flag.String("timestamp", "", "timestamp, hex (suites with a T input)")
		decimal   = flag.Bool("decimal", false, "treat questions as decimal numbers (QN suites)")
		asJSON    = flag.Bool("json", false, "emit JSON vectors instead of plain responses")
	)
	flag.Parse()

	questions := flag.Args()
	if len(questions) == 0 {
		fmt.Fprintln(os.Stderr, "usage: ocra-vectors [flags] question...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	suite, err := ocra.ParseSuite(*suiteStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid suite: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, q := range questions {
		question := q
		if *decimal {
			n, ok := new(big.Int).SetString(strings.TrimSpace(q), 10)
			if !ok {
				fmt.Fprintf(os.Stderr, "question %q is not a decimal number\n", q)
				os.Exit(1)
			}
			question = n.Text(16)
		}

		response, err := suite.Compute(*key, *counter, question, *pin, *session, *timestamp)
		if err != nil {
			fmt.Fprintf(os.Stderr, "compute for question %q: %v\n", q, err)
			os.Exit(1)
		}

		if *asJSON {
			v := vector{
				Suite:     *suiteStr,
				Question:  question,
				Counter:   *counter,
				Session:   *session,
				Timestamp: *timestamp,
				Response:  response,
			}
			if err := enc.Encode(v); err != nil {
				fmt.Fprintf(os.Stderr, "encode vector: %v\n", err)
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("%s %s\n", q, response)
	}
}
