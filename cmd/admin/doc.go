// Command admin performs operator maintenance on accounts.
//
// Usage:
//
//	admin set-password -email <e>
//	admin set-kyc -email <e> -status <pending|verified|rejected>
//	admin deactivate -email <e>
//	admin upload-kyc -email <e> -type <document type> -file <path>
//
// Server configuration flags (-d, -c, ...) may follow the subcommand.
package main
