package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meli/auth-server/internal/domain"
)

var testKey = SigningKey("codec-test-secret-0123456789abcdef")

func testNow() time.Time {
	return time.Unix(1_700_000_000, 0).UTC()
}

func accessClaims(now time.Time) ClaimSet {
	return ClaimSet{
		Subject:   "alice",
		IssuedAt:  now,
		ExpiresAt: now.Add(15 * time.Minute),
		Kind:      domain.TokenKindAccess,
		Profile: &Profile{
			UserID:       42,
			FirstName:    "Alice",
			LastName:     "Liddell",
			Email:        "alice@example.com",
			Phone:        "+54 11 5555 0000",
			Address:      "Calle Falsa 123",
			Role:         "ADMIN",
			Position:     "engineer",
			ExternalID:   "ML-0042",
			Status:       "ACTIVE",
			RegisteredAt: "2024-01-02T03:04:05Z",
		},
	}
}

// signRaw signs an arbitrary payload with key so parse failures can be
// exercised behind a valid signature.
func signRaw(t *testing.T, payload string, key SigningKey) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	signingString := header + "." + body
	sig, err := jwt.SigningMethodHS256.Sign(signingString, []byte(key))
	require.NoError(t, err)
	return signingString + "." + base64.RawURLEncoding.EncodeToString(sig)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	now := testNow()

	tests := []struct {
		name   string
		claims ClaimSet
	}{
		{name: "access with profile", claims: accessClaims(now)},
		{name: "access with empty profile", claims: ClaimSet{
			Subject: "bob", IssuedAt: now, ExpiresAt: now.Add(time.Second),
			Kind: domain.TokenKindAccess, Profile: &Profile{},
		}},
		{name: "refresh without profile", claims: ClaimSet{
			Subject: "alice", IssuedAt: now, ExpiresAt: now.Add(RefreshTokenTTL),
			Kind: domain.TokenKindRefresh,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := Encode(tt.claims, testKey)
			require.NoError(t, err)

			decoded, err := Decode(token, testKey)
			require.NoError(t, err)
			assert.Equal(t, tt.claims, decoded)
		})
	}
}

func TestEncodeNormalizesTimestamps(t *testing.T) {
	base := testNow()
	art := time.FixedZone("ART", -3*60*60)

	tests := []struct {
		name      string
		issuedAt  time.Time
		expiresAt time.Time
	}{
		{name: "sub-second issue time", issuedAt: base.Add(250 * time.Millisecond), expiresAt: base.Add(time.Hour + 250*time.Millisecond)},
		{name: "wall clock with monotonic reading", issuedAt: time.Now(), expiresAt: time.Now().Add(time.Hour)},
		{name: "non-UTC zone", issuedAt: base.In(art), expiresAt: base.Add(time.Minute).In(art)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := ClaimSet{Subject: "alice", IssuedAt: tt.issuedAt, ExpiresAt: tt.expiresAt, Kind: domain.TokenKindRefresh}

			token, err := Encode(claims, testKey)
			require.NoError(t, err)
			decoded, err := Decode(token, testKey)
			require.NoError(t, err)

			want := claims
			want.IssuedAt = tt.issuedAt.Truncate(time.Second).UTC()
			want.ExpiresAt = tt.expiresAt.Truncate(time.Second).UTC()
			assert.Equal(t, want, decoded)

			again, err := Encode(decoded, testKey)
			require.NoError(t, err)
			assert.Equal(t, token, again)
		})
	}
}

func TestEncodeRejectsSpanUnderOneSecond(t *testing.T) {
	issued := testNow().Add(250 * time.Millisecond)
	claims := ClaimSet{Subject: "alice", IssuedAt: issued, ExpiresAt: issued.Add(500 * time.Millisecond), Kind: domain.TokenKindAccess}

	_, err := Encode(claims, testKey)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestEncodeIsDeterministic(t *testing.T) {
	claims := accessClaims(testNow())

	first, err := Encode(claims, testKey)
	require.NoError(t, err)
	second, err := Encode(claims, testKey)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEncodeRejectsInvalidClaims(t *testing.T) {
	now := testNow()

	tests := []struct {
		name   string
		claims ClaimSet
		key    SigningKey
		want   error
	}{
		{name: "missing kind", claims: ClaimSet{Subject: "a", IssuedAt: now, ExpiresAt: now.Add(time.Minute)}, key: testKey, want: ErrInvalidClaims},
		{name: "unknown kind", claims: ClaimSet{Subject: "a", IssuedAt: now, ExpiresAt: now.Add(time.Minute), Kind: "id_token"}, key: testKey, want: ErrInvalidClaims},
		{name: "expiry equals issue", claims: ClaimSet{Subject: "a", IssuedAt: now, ExpiresAt: now, Kind: domain.TokenKindAccess}, key: testKey, want: ErrInvalidClaims},
		{name: "empty subject", claims: ClaimSet{IssuedAt: now, ExpiresAt: now.Add(time.Minute), Kind: domain.TokenKindRefresh}, key: testKey, want: ErrInvalidClaims},
		{name: "empty key", claims: accessClaims(now), key: nil, want: ErrEmptyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.claims, tt.key)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecodeDoesNotCheckExpiry(t *testing.T) {
	past := testNow().Add(-30 * 24 * time.Hour)
	token, err := Encode(accessClaims(past), testKey)
	require.NoError(t, err)

	claims, err := Decode(token, testKey)
	require.NoError(t, err)
	assert.True(t, claims.ExpiresAt.Before(time.Now()))
}

func TestDecodeRejectsEveryFlippedByte(t *testing.T) {
	token, err := Encode(accessClaims(testNow()), testKey)
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		tampered := []byte(token)
		tampered[i] ^= 0x01

		_, err := Decode(string(tampered), testKey)
		require.ErrorIsf(t, err, ErrSignatureInvalid, "flipped byte %d (%q)", i, token[i])
	}
}

func TestDecodeRejectsWrongKey(t *testing.T) {
	token, err := Encode(accessClaims(testNow()), testKey)
	require.NoError(t, err)

	_, err = Decode(token, SigningKey("another-secret-entirely"))
	assert.ErrorIs(t, err, ErrSignatureInvalid)

	_, err = Decode(token, nil)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrMalformed},
		{name: "no separators", token: "not-a-token", want: ErrMalformed},
		{name: "payload not json", token: signRaw(t, "not json", testKey), want: ErrMalformed},
		{name: "missing kind", token: signRaw(t, `{"sub":"alice","iat":1700000000,"exp":1700000900}`, testKey), want: ErrMalformed},
		{name: "missing expiry", token: signRaw(t, `{"sub":"alice","type":"access_token","iat":1700000000}`, testKey), want: ErrMalformed},
		{name: "expiry before issue", token: signRaw(t, `{"sub":"alice","type":"refresh_token","iat":1700000900,"exp":1700000000}`, testKey), want: ErrMalformed},
		{name: "unsigned garbage", token: "a.b.c", want: ErrSignatureInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token, testKey)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAccessTokenFlattensProfile(t *testing.T) {
	token, err := Encode(accessClaims(testNow()), testKey)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	for _, key := range []string{`"type":"access_token"`, `"sub":"alice"`, `"email":"alice@example.com"`, `"external_id":"ML-0042"`, `"id":42`} {
		assert.Contains(t, string(payload), key)
	}
}
