package impl

import "testing"

func TestHashAndVerify(t *testing.T) {
	svc := NewPasswordServiceArgon2id()

	hash, salt, paramsJSON, algo, ver, err := svc.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if algo != "argon2id" || ver != 1 {
		t.Fatalf("unexpected algo %q version %d", algo, ver)
	}

	cred := &fakeCred{algo: algo, hash: hash, salt: salt, params: paramsJSON, ver: ver}
	if rehash, ok := svc.Verify("correct horse", cred); !ok || rehash {
		t.Fatalf("expected clean verify, got ok=%v rehash=%v", ok, rehash)
	}
	if _, ok := svc.Verify("wrong password", cred); ok {
		t.Fatal("wrong password must not verify")
	}
}

func TestVerifyFlagsOutdatedParams(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	hash, salt, paramsJSON, algo, _, err := svc.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cred := &fakeCred{algo: algo, hash: hash, salt: salt, params: paramsJSON, ver: 0}
	rehash, ok := svc.Verify("correct horse", cred)
	if !ok {
		t.Fatal("expected old credential to still verify")
	}
	if !rehash {
		t.Fatal("expected outdated version to request a rehash")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	svc := NewPasswordServiceArgon2id()
	if _, _, _, _, _, err := svc.Hash(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

type fakeCred struct {
	algo   string
	hash   []byte
	salt   []byte
	params []byte
	ver    int
}

func (c *fakeCred) GetAlgo() string       { return c.algo }
func (c *fakeCred) GetHash() []byte       { return c.hash }
func (c *fakeCred) GetSalt() []byte       { return c.salt }
func (c *fakeCred) GetParamsJSON() []byte { return c.params }
func (c *fakeCred) GetPasswordVer() int   { return c.ver }
