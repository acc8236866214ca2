package importer

import (
	"bufio"
	"encoding/csv"
	"io"
)

// ReadCSV parses delimited text into candidate transactions. A structurally
// broken file yields a zero-row result together with the parse error so the
// caller can report it without aborting the request.
func ReadCSV(r io.Reader, createdBy string) (Result, error) {
	br := bufio.NewReader(r)
	stripBOM(br)

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return Result{}, err
	}
	return ParseRows(rows, createdBy), nil
}

func stripBOM(br *bufio.Reader) {
	head, err := br.Peek(3)
	if err == nil && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		br.Discard(3)
	}
}
