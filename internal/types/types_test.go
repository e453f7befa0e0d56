package types

import "testing"

func TestControllerPatchApply(t *testing.T) {
	str := func(s string) *string { return &s }

	stored := Controller{
		ID:            1,
		FullName:      "Ali",
		BirthDate:     "1990-01-02",
		LicenseNumber: "L1",
		Qualification: "ATC",
		Workplace:     "Baghdad",
	}

	tests := []struct {
		name  string
		patch ControllerPatch
		want  Controller
	}{
		{
			name:  "empty patch changes nothing",
			patch: ControllerPatch{},
			want:  stored,
		},
		{
			name:  "one field",
			patch: ControllerPatch{Workplace: str("Basra")},
			want: Controller{
				ID: 1, FullName: "Ali", BirthDate: "1990-01-02",
				LicenseNumber: "L1", Qualification: "ATC", Workplace: "Basra",
			},
		},
		{
			name:  "explicit empty clears",
			patch: ControllerPatch{Qualification: str("")},
			want: Controller{
				ID: 1, FullName: "Ali", BirthDate: "1990-01-02",
				LicenseNumber: "L1", Workplace: "Baghdad",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.patch.Apply(stored); got != tt.want {
				t.Errorf("Apply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
