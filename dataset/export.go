package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// Export writes records as comma separated text. The header is the field
// order of the first record (or schema when there are no records).
func Export(w io.Writer, schema *Schema, records []Record) error {

	fields := []string{}
	if len(records) > 0 {
		fields = records[0].Fields()
	} else if schema != nil {
		fields = schema.Fields()
	}

	cw := csv.NewWriter(w)

	err := cw.Write(fields)
	if err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(fields))
	for i, record := range records {
		for j, field := range fields {
			row[j] = record.Get(field).String()
		}
		var err error
		if len(row) == 1 && row[0] == "" {
			// a lone empty cell would be an empty line, which readers skip
			cw.Flush()
			if err = cw.Error(); err == nil {
				_, err = io.WriteString(w, `""`+"\n")
			}
		} else {
			err = cw.Write(row)
		}
		if err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func ExportString(schema *Schema, records []Record) (string, error) {
	buf := &bytes.Buffer{}
	err := Export(buf, schema, records)
	return buf.String(), err
}
