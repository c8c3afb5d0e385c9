package passwords

// Config selects and parameterizes the password hashing algorithm. Version
// tags let verification fall back to older configurations while new hashes
// always use the current one.
type Config struct {
	Algorithm      string `env:"ALGORITHM" envDefault:"argon2"`
	Version        int    `env:"VERSION" envDefault:"1"`
	MinimumVersion int    `env:"MINIMUM_VERSION" envDefault:"1"`

	Bcrypt BcryptConfig `envPrefix:"BCRYPT_"`
	Scrypt ScryptConfig `envPrefix:"SCRYPT_"`
	Argon2 Argon2Config `envPrefix:"ARGON2_"`
	Pbkdf2 Pbkdf2Config `envPrefix:"PBKDF2_"`

	Conditions Conditions `envPrefix:"CONDITIONS_"`

	// PreviousVersions holds older, still-accepted configurations in the
	// order they should be tried during verification.
	PreviousVersions []Config `env:"-"`
}

type BcryptConfig struct {
	Cost int `env:"COST" envDefault:"10"`
}

type ScryptConfig struct {
	// CPUMemoryCost is the log2 of the scrypt N parameter.
	CPUMemoryCost   int `env:"CPU_MEMORY_COST" envDefault:"14"`
	BlockSize       int `env:"BLOCK_SIZE" envDefault:"8"`
	Parallelization int `env:"PARALLELIZATION" envDefault:"1"`
	SaltSize        int `env:"SALT_SIZE" envDefault:"16"`
	KeySize         int `env:"KEY_SIZE" envDefault:"32"`
}

type Argon2Config struct {
	SaltSize    int    `env:"SALT_SIZE" envDefault:"16"`
	Iterations  uint32 `env:"ITERATIONS" envDefault:"3"`
	Parallelism uint8  `env:"PARALLELISM" envDefault:"4"`
	MemoryKiB   uint32 `env:"MEMORY_KIB" envDefault:"65536"`
}

type Pbkdf2Config struct {
	SaltSize int `env:"SALT_SIZE" envDefault:"16"`
	// HashAlgorithm is SHA-256 or SHA-512.
	HashAlgorithm string `env:"HASH_ALGORITHM" envDefault:"SHA-256"`
	// Iterations of 0 picks the per-algorithm default (600,000 for
	// SHA-256, 210,000 for SHA-512).
	Iterations int `env:"ITERATIONS"`
}

// Conditions are the complexity requirements enforced on new plaintext
// passwords at credential creation time.
type Conditions struct {
	MinLength                int  `env:"MIN_LENGTH" envDefault:"8"`
	MaxLength                int  `env:"MAX_LENGTH" envDefault:"128"`
	IncludeDigits            bool `env:"INCLUDE_DIGITS"`
	IncludeCaps              bool `env:"INCLUDE_CAPS"`
	IncludeSmallLetters      bool `env:"INCLUDE_SMALL_LETTERS"`
	IncludeSpecialCharacters bool `env:"INCLUDE_SPECIAL_CHARACTERS"`
}
