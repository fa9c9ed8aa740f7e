/*
Package cliparse handles command-line flags and environment configuration
for both binaries.

# Precedence

Flags win over environment variables, which win over defaults. Secrets
(salts, encoder password, stream key) are read from the environment only,
with dev-convenience flags for the salts.

# Server

ParseServerFlags configures the session store API: port, database type and
URL, and the two HMAC salts. SQLite is the default database and gets a
local file path when no URL is given; Postgres requires an explicit URL.

# Kiosk

ParseKioskFlags configures one display process: the API base URL, the
location slug this kiosk serves, poll cadence, recovery cache directory,
and the optional encoder settings. An empty encoder URL disables scene
and stream control entirely.
*/
package cliparse
