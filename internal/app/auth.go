package app

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

const (
	DefaultAuthFile = "auth.secret"
	authRealm       = `Basic realm="Sagre Editor"`
)

// ErrInvalidCredentials is returned for any failed login. Unknown users and
// wrong passwords are not distinguished.
var ErrInvalidCredentials = errors.New(ErrCredentialsMsg)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Auth checks editor credentials against an auth file or, when there is none,
// against the configured demo login
type Auth struct {
	user string
	hash []byte
	demo DemoLogin
	file string
}

// ResolveAuthFile returns path, or $AUTH_FILE, or auth.secret next to the binary
func ResolveAuthFile(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv("AUTH_FILE"); env != "" {
		return env, nil
	}
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(execPath), DefaultAuthFile), nil
}

// LoadAuth loads credentials from the auth file
func LoadAuth(path string, demo DemoLogin, log *zap.Logger) (*Auth, error) {
	file, err := ResolveAuthFile(path)
	if err != nil {
		return nil, err
	}

	a := &Auth{demo: demo, file: file}

	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			if demo.Email == "" || demo.Password == "" {
				return nil, fmt.Errorf("no auth file at %s and no demo login configured", file)
			}
			log.Warn("NO AUTH FILE FOUND - editor uses the demo login, do not use in production",
				zap.String("expected_file", file),
				zap.String("demo_user", demo.Email),
				zap.String("hint", "run: sagre-kalender hash-password"),
			)
			return a, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	// Parse auth file (format: username:hash)
	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	a.user = parts[0]
	a.hash = []byte(parts[1])

	log.Info("auth enabled for editor", zap.String("user", a.user), zap.String("file", file))
	return a, nil
}

// UsesDemoLogin reports whether no auth file was loaded
func (a *Auth) UsesDemoLogin() bool {
	return a.hash == nil
}

// Check verifies a username and password
func (a *Auth) Check(user, password string) error {
	if a.UsesDemoLogin() {
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.demo.Email)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(a.demo.Password)) == 1
		if userMatch && passMatch {
			return nil
		}
		return ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) != 1 {
		return ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, string(a.hash))
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	// Generate random salt
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}

	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	var memory, time, threads uint32
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads)
	if err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(len(decodedHash)))

	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// RequireAuth is a middleware that enforces Basic Auth on editor endpoints
func (s *Server) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		var err error
		if ok {
			err = s.auth.Check(user, pass)
		} else {
			err = ErrInvalidCredentials
		}

		if err != nil {
			if !errors.Is(err, ErrInvalidCredentials) {
				s.log.Error("error verifying password", zap.Error(err))
			}
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			s.log.Warn("failed auth attempt", zap.String("remote", r.RemoteAddr), zap.String("user", user))
			return
		}

		next(w, r)
	}
}

// CreateAuthFile creates an auth.secret file with username and hashed password
func CreateAuthFile(path, username, password string, overwrite bool) (string, error) {
	authFile, err := ResolveAuthFile(path)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(authFile); err == nil {
		if !overwrite {
			fmt.Printf("Auth file already exists: %s\n", authFile)
			fmt.Print("Overwrite? (y/N): ")
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				return "", fmt.Errorf("aborted")
			}
		}
		// Delete existing file (necessary because we use 0400 read-only)
		if err := os.Remove(authFile); err != nil {
			return "", fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	// Write to file with format: username:hash (0400 = read-only)
	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(authFile, []byte(content), 0400); err != nil {
		return "", fmt.Errorf("failed to write auth file: %w", err)
	}

	return authFile, nil
}
