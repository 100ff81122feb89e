package enums

import "testing"

func TestParsePracticeMode(t *testing.T) {
	cases := []struct {
		in      string
		want    PracticeMode
		wantErr bool
	}{
		{in: "general", want: PracticeModeGeneral},
		{in: "topic", want: PracticeModeTopic},
		{in: "exam", want: PracticeModeExam},
		{in: " Exam ", want: PracticeModeExam},
		{in: "adaptive", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParsePracticeMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParsePracticeMode(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePracticeMode(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParsePracticeMode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
