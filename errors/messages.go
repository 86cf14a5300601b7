// This file is part of this program.
//
// this program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// this program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package errors

// catalogue of curated error messages, one family per subsystem. grouping
// them here means every fatal/recoverable condition is built from a named
// constant instead of an ad-hoc fmt.Errorf scattered through the code.
const (
	// cpu
	UnknownOpcode  = "cpu error: unknown %s opcode %#04x at pc %#08x"
	InvalidMode    = "cpu error: invalid cpu mode %#02x"
	NestedStep     = "cpu error: Step() called re-entrantly"

	// scheduler
	SchedulerLivelock = "scheduler error: zero-cycle instruction outside STOP, aborting frame"
	SchedulerOverflow = "scheduler error: event table exhausted"

	// bus / memory
	UnmappedRead  = "bus error: read from unmapped address %#08x"
	UnmappedWrite = "bus error: write to unmapped address %#08x"

	// backup storage
	BackupReadError   = "backup storage error: %v"
	BackupTypeClamped = "backup storage warning: unknown backup type %v, clamping to SRAM"

	// dma
	DMAChannelOOB = "dma error: channel index %d out of range"

	// mailbox / channel
	MailboxAllocFailure = "mailbox error: allocation failure: %v"
	MailboxClosed       = "mailbox error: push on a closed mailbox"

	// configuration (RESET message)
	ConfigROMTooLarge = "configuration warning: rom size %d exceeds cartridge limit, clamping to %d"
	ConfigUnknownBackup = "configuration warning: unrecognised backup storage type %v"

	// snapshot (quicksave/quickload)
	SnapshotMismatch  = "snapshot error: format mismatch: %v"
	SnapshotTruncated = "snapshot error: truncated data: %v"
)
