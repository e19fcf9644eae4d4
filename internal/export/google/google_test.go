package google

import "testing"

func TestAmountColumn(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    any
	}{
		{
			name:    "transaction amount",
			payload: `{"id":"t-1","amount":{"paise":12550}}`,
			want:    125.50,
		},
		{
			name:    "activity total",
			payload: `{"id":"a-1","totalAmount":{"paise":19000}}`,
			want:    190.0,
		},
		{
			name:    "loan principal preferred over emi",
			payload: `{"id":"l-1","principalAmount":{"paise":10000000},"emiAmount":{"paise":879200}}`,
			want:    100000.0,
		},
		{
			name:    "no amount field",
			payload: `{"loan_id":"l-1","month":3}`,
			want:    "",
		},
		{
			name:    "malformed payload",
			payload: `{not json`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := amountColumn(tt.payload); got != tt.want {
				t.Fatalf("amountColumn(%q) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
