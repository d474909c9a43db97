// Command sign answers auth challenges by hand, for browsers and curl.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/quill/internal/client"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
)

func main() {
	keyPath := flag.String("key", "privkey.pem", "Path to the Ed25519 private key")
	flag.Parse()

	signer, err := newSigner(*keyPath)
	if err != nil {
		fmt.Println("Error loading private key:", err)
		os.Exit(1)
	}

	fmt.Println("Enter challenges one by one. Type 'quit' to exit.")
	if err := run(os.Stdin, os.Stdout, signer); err != nil {
		fmt.Println("Error reading input:", err)
	}
}

func newSigner(path string) (func(string) (string, error), error) {
	key, err := client.LoadPrivateKey(path)
	if err != nil {
		return nil, err
	}
	return func(challenge string) (string, error) {
		return client.SignChallenge(key, challenge)
	}, nil
}

// run reads base64 challenges from in and writes their signatures to out
// until EOF or "quit".
func run(in io.Reader, out io.Writer, sign func(string) (string, error)) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("Enter challenge (base64): "))

		if !scanner.Scan() {
			break
		}

		challenge := strings.TrimSpace(scanner.Text())
		if challenge == "" {
			continue
		}
		if challenge == "quit" {
			break
		}

		sig, err := sign(challenge)
		if err != nil {
			fmt.Fprintln(out, outputStyle.Render("Error: "+err.Error()))
			continue
		}
		fmt.Fprintln(out, outputStyle.Render("Signature: "+sig))
	}
	return scanner.Err()
}
