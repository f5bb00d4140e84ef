package validate

import "testing"

func TestIsAlphabet(t *testing.T) {
	if !IsAlphabet("abcXYZ09", "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789") {
		t.Fatal("expected alnum to be allowed")
	}
	if IsAlphabet("abc-", "abc") {
		t.Fatal("expected false when char not allowed")
	}
	if IsAlphabet("", "abc") {
		t.Fatal("empty string is not in any alphabet")
	}
}

func TestBase64AndHex(t *testing.T) {
	if !IsBase64URLNoPad("eyJmb28iOiJiYXIifQ") { // {"foo":"bar"}
		t.Fatal("expected valid base64url")
	}
	if !IsBase64Std("YWJjZA==") { // abcd
		t.Fatal("expected valid base64 std")
	}
	if !IsBase64Std("wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY") {
		t.Fatal("expected 40-char secret-shaped value to pass base64")
	}
	if !IsHex("deadbeef") {
		t.Fatal("expected valid hex")
	}
	if IsHex("abc") { // odd length
		t.Fatal("expected odd-length hex to be invalid")
	}
}

func TestIsJWTStructure(t *testing.T) {
	// header: {"alg":"HS256","typ":"JWT"} -> eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9
	// payload: {"sub":"1234567890"} -> eyJzdWIiOiIxMjM0NTY3ODkwIn0
	jwt := "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.signature"
	if !IsJWTStructure(jwt) {
		t.Fatalf("expected valid jwt structure: %s", jwt)
	}
	if IsJWTStructure("not.jwt") {
		t.Fatal("expected invalid jwt structure")
	}
	unsigned := "eyJhbGciOiJub25lIn0.eyJzdWIiOiIxMjM0NTY3ODkwIn0."
	if !IsJWTStructure(unsigned) {
		t.Fatal("unsigned jwt (empty signature) should be structurally valid")
	}
}

func TestCheckDispatch(t *testing.T) {
	if !Check("", "anything") {
		t.Fatal("no validator means accept")
	}
	if Check("base64", "!!notbase64!!") {
		t.Fatal("base64 validator should reject junk")
	}
	if !Check("hex", "c0ffee") {
		t.Fatal("hex validator should pass valid hex")
	}
	if Check("jwt", "one.two") {
		t.Fatal("jwt validator should need three segments")
	}
}
