package types

const (
	KeySize     = 32
	NonceSize   = 12
	TagSize     = 16
	MinBlobSize = NonceSize + TagSize
)

const (
	KDFTypeSHA256   KDFType = 0
	KDFTypePBKDF2   KDFType = 1
	KDFTypeArgon2id KDFType = 2
)

// KDFSalt is mixed into the slow KDFs. It is fixed for every install so that
// the same passphrase always yields the same key.
const KDFSalt = "passgen.notapipeline.github.com"
