package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{
			name: "simple rows",
			in:   "a,b,c\n1,2,3\n",
			want: [][]string{{"a", "b", "c"}, {"1", "2", "3"}},
		},
		{
			name: "crlf terminators",
			in:   "a,b\r\n1,2\r\n",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "quoted comma stays in cell",
			in:   "name,amount\n\"Shah, Mehta & Co\",100\n",
			want: [][]string{{"name", "amount"}, {"Shah, Mehta & Co", "100"}},
		},
		{
			name: "escaped quote inside quotes",
			in:   "remark\n\"said \"\"hello\"\"\"\n",
			want: [][]string{{"remark"}, {`said "hello"`}},
		},
		{
			name: "newline inside quotes",
			in:   "remark,amount\n\"line one\nline two\",5\n",
			want: [][]string{{"remark", "amount"}, {"line one\nline two", "5"}},
		},
		{
			name: "missing trailing newline",
			in:   "a,b\n1,2",
			want: [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name: "trailing empty cell",
			in:   "a,b,\n",
			want: [][]string{{"a", "b", ""}},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCSV(tt.in))
		})
	}
}
