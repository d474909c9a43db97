package main

import (
	"fmt"
	"os"

	"github.com/debemdeboas/quill/internal/config"
	"gopkg.in/yaml.v3"
)

const header = "# Quill configuration example\n# Copy this file to config.yaml and customize as needed\n\n"

// exampleConfig renders the default configuration as commented YAML.
func exampleConfig() ([]byte, error) {
	yamlData, err := yaml.Marshal(config.Default())
	if err != nil {
		return nil, err
	}
	return append([]byte(header), yamlData...), nil
}

func main() {
	output, err := exampleConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating YAML: %v\n", err)
		os.Exit(1)
	}

	// Write to file or stdout
	outputFile := "config.example.yaml"
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	if outputFile == "-" {
		os.Stdout.Write(output)
		return
	}

	if err := os.WriteFile(outputFile, output, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}
