package mcpserver

// RoutinesFormatContract describes the routines document format that the
// sync engine expands. Exposed so LLM consumers can edit the document
// without guessing its schema.
const RoutinesFormatContract = `# Dagaz Routines Document Contract

The routines document is a YAML or JSON file (format chosen by the source
URL extension: ` + "`.yaml`/`.yml`" + ` decode as YAML, anything else as JSON).
It is either a bare list of routine records, or an object:

` + "```yaml" + `
lookahead_days: 14        # optional; horizon length in days
routines:
  - ...                   # list of routine records
` + "```" + `

## Routine records

Two shapes are accepted.

### Multi-weekday

` + "```yaml" + `
- title: Gym
  days: [Mon, Wed, Fri]   # weekday names, full or three-letter, any case
  start: "06:00"          # HH:MM; a bare HH means minute 00
  end: "07:00"
  notes: optional free text
  location: optional place
` + "```" + `

### Single weekday with duration

` + "```yaml" + `
- title: Piano lesson
  day: Tuesday
  time: "17:30"           # optional; defaults to 17:00
  duration_minutes: 45    # optional; defaults to 60, zero is legal
  notes: optional free text
  location: optional place
` + "```" + `

## Semantics

1. Each record describes an infinite weekly recurrence. The sync engine
   materializes only the occurrences whose START falls inside the rolling
   horizon [now, now + lookahead_days]; an occurrence's end may extend past
   the horizon.
2. Sync is idempotent: an occurrence is created only if no event with the
   same title and start instant already exists in the calendar window.
3. A record with an unknown weekday or malformed clock time is skipped
   whole (zero occurrences, logged); it never fails the run.
4. Clock times are civil times in the server's configured timezone.
`
