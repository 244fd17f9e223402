package utils

import (
	"testing"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateJWT(42, "driver")
	if err != nil {
		t.Fatalf("не удалось сгенерировать токен: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("валидный токен не прошел проверку: %v", err)
	}
	if claims.UserID != 42 || claims.Role != "driver" {
		t.Errorf("claims не совпадают: %+v", claims)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := GenerateJWT(1, "driver")
	if err != nil {
		t.Fatalf("не удалось сгенерировать токен: %v", err)
	}

	t.Setenv("JWT_SECRET", "another-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Error("токен с чужой подписью не должен проходить проверку")
	}
}

func TestGenerateAdminJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAdminJWT()
	if err != nil {
		t.Fatalf("не удалось сгенерировать админский токен: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("админский токен не прошел проверку: %v", err)
	}
	if claims.Role != "admin" || claims.UserID != 0 {
		t.Errorf("ожидалась роль admin с user_id=0, получено %+v", claims)
	}
}
