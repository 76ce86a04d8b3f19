package usecase

import "testing"

func TestHostToken_RoundTrip(t *testing.T) {
	tokens := NewHostTokenUsecase([]byte("secret"))

	token, err := tokens.Issue("friday")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := tokens.Verify("friday", token); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestHostToken_RejectsOtherRoom(t *testing.T) {
	tokens := NewHostTokenUsecase([]byte("secret"))

	token, err := tokens.Issue("friday")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := tokens.Verify("saturday", token); err == nil {
		t.Fatal("token for another room must be rejected")
	}
}

func TestHostToken_RejectsForeignSignature(t *testing.T) {
	issued, err := NewHostTokenUsecase([]byte("secret")).Issue("friday")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := NewHostTokenUsecase([]byte("other")).Verify("friday", issued); err == nil {
		t.Fatal("token signed with a different secret must be rejected")
	}
}
