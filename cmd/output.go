package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/sparesim/sparesim/sim"
)

// writeTo runs write against dest: "" skips, "-" is stdout, anything else
// is a file created or truncated.
func writeTo(dest string, stdout io.Writer, write func(io.Writer) error) (retErr error) {
	switch dest {
	case "":
		return nil
	case "-":
		return write(stdout)
	}
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close %s: %w", dest, closeErr)
		}
	}()
	writer := bufio.NewWriter(file)
	if err := write(writer); err != nil {
		return err
	}
	return writer.Flush()
}

func writeSummaryYAML(w io.Writer, sum sim.Summary) error {
	return writeYAML(w, sum)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeResultJSON(w io.Writer, res *sim.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
