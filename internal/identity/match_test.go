package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "Fielder Park Dental", "fielder park dental"},
		{"strips llc", "Smith Dental LLC", "smith dental"},
		{"strips inc", "Acme Dental, Inc.", "acme dental"},
		{"strips dds", "Dr. Jane Smith, DDS", "dr jane smith"},
		{"strips dmd", "John Doe DMD", "john doe"},
		{"strips pc", "Smile Makers PC", "smile makers"},
		{"dentistry synonym", "Fielder Park Dentistry", "fielder park dental"},
		{"curly apostrophe", "Mario’s Pizza", "marios pizza"},
		{"ampersand dropped", "Crown & Bridge Dental", "crown bridge dental"},
		{"hyphen becomes space", "Mid-Cities Dental", "mid cities dental"},
		{"slash becomes space", "Ortho/Implant Center", "ortho implant center"},
		{"diacritics folded", "Café Médico", "cafe medico"},
		{"collapses whitespace", "  Fielder   Park  Dental ", "fielder park dental"},
		{"suffix only", "LLC", ""},
		{"empty", "", ""},
		{"digits kept", "7 Day Dental", "7 day dental"},
		{"credential token stripped anywhere", "PC Repair Shop", "repair shop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestIsMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "identical",
			a:    "Fielder Park Dental",
			b:    "Fielder Park Dental",
			want: true,
		},
		{
			name: "suffix and credential variants",
			a:    "Fielder Park Dental",
			b:    "Fielder Park Dental - Dr. Smith, DDS",
			want: true,
		},
		{
			name: "dentistry spelling variant",
			a:    "Fielder Park Dentistry",
			b:    "Fielder Park Dental",
			want: true,
		},
		{
			name: "short generic token",
			a:    "Park",
			b:    "Fielder Park Dental",
			want: false,
		},
		{
			name: "five char substring rejected",
			a:    "Smile",
			b:    "Smile Dental Studio",
			want: false,
		},
		{
			name: "six char substring accepted",
			a:    "Smiles",
			b:    "Smiles Dental Studio",
			want: true,
		},
		{
			name: "different businesses",
			a:    "Fielder Park Dental",
			b:    "Arlington Smiles",
			want: false,
		},
		{
			name: "empty normalized never matches",
			a:    "LLC",
			b:    "LLC",
			want: false,
		},
		{
			name: "case insensitive",
			a:    "FIELDER PARK DENTAL",
			b:    "fielder park dental",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsMatch(tt.a, tt.b))
			assert.Equal(t, tt.want, IsMatch(tt.b, tt.a), "must be symmetric")
		})
	}
}
