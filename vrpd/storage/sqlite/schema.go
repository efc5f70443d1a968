// Copyright 2025 RPKI-viz Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlite

const (
	// SchemaVersion is the version of the SQLite schema understood by this backend.
	// Whenever changes to the schema are made, this version number should be increased
	// to prevent data corruption between incompatible database schemas.
	SchemaVersion = 1
	// Schema is the SQLite database layout.
	Schema = `CREATE TABLE Snapshots(
		Serial INTEGER PRIMARY KEY,
		ContentHash TEXT NOT NULL,
		CapturedAt INTEGER NOT NULL,
		EntryCount INTEGER NOT NULL
	);
	CREATE TABLE Entries(
		Serial INTEGER NOT NULL,
		Asn INTEGER NOT NULL,
		Prefix TEXT NOT NULL,
		MaxLength INTEGER NOT NULL,
		TrustAnchor TEXT NOT NULL,
		FOREIGN KEY (Serial) REFERENCES Snapshots(Serial) ON DELETE CASCADE,
		PRIMARY KEY (Serial, Asn, Prefix, MaxLength, TrustAnchor)
	);
	CREATE TABLE Diffs(
		ToSerial INTEGER PRIMARY KEY,
		FromSerial INTEGER NOT NULL,
		Unchanged INTEGER NOT NULL
	);
	CREATE TABLE DiffEntries(
		ToSerial INTEGER NOT NULL,
		Added INTEGER NOT NULL,
		Asn INTEGER NOT NULL,
		Prefix TEXT NOT NULL,
		MaxLength INTEGER NOT NULL,
		TrustAnchor TEXT NOT NULL,
		FOREIGN KEY (ToSerial) REFERENCES Diffs(ToSerial) ON DELETE CASCADE,
		PRIMARY KEY (ToSerial, Added, Asn, Prefix, MaxLength, TrustAnchor)
	);
	CREATE TABLE Marker(
		RowID INTEGER PRIMARY KEY CHECK (RowID = 0),
		CurrentSerial INTEGER NOT NULL
	);
	`
	SnapshotsTable   = "Snapshots"
	EntriesTable     = "Entries"
	DiffsTable       = "Diffs"
	DiffEntriesTable = "DiffEntries"
	MarkerTable      = "Marker"
)
