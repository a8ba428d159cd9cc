/*
Package sealfile provides functions for sealing a file into a self-describing container that can be opened again with the same passphrase.
This uses AES-256-GCM to encrypt and authenticate the provided data.

# Container layout:

	offset 0   len 3   magic "SC1" (0x53 0x43 0x31)
	offset 3   len 16  salt, generated fresh for every container
	offset 19  len N   payload

The payload is a 12 byte random nonce, followed by the AES-256-GCM ciphertext and its 16 byte tag.
The 19 byte header is authenticated as associated data, so tampering with any byte of the container prevents Decrypt from recovering the Plaintext.

# How it works:

A Key is derived from the Passphrase and salt with PBKDF2-HMAC-SHA256, using DefaultIterations.
The salt is stored in the header so the same Key can be derived later given the same passphrase.
Decrypt validates the header before deriving anything, so malformed input never pays the KDF cost.

# General guidelines:
  - Malformed containers and failed authentication should be presented the same way, see UserMessage. A wrong passphrase and a corrupted file are indistinguishable by design of the cipher.
  - The iteration count isn't recorded in the container. Opening a container requires the same iteration count that sealed it.
  - The whole input is held in memory. This isn't suitable for files that don't fit in memory.
  - Callers writing the same output path must serialize those calls.
*/
package sealfile
