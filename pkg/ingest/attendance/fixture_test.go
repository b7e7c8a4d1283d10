package attendance

// sampleRows is a small export in the default layout:
//
//	start_time          -> offset 2
//	participants        -> offset 6,  rows [6, 8)
//	meeting_activities  -> offset 11, rows [11, 14)
//	video_audio_consent -> offset 17
func sampleRows() [][]string {
	return [][]string{
		{"Start time"},
		{""},
		{"Meeting start", "03/21/24, 02:15:07 PM"},
		{},
		{"2. Participants"},
		{"Name", "First Join", "Last Leave", "In-Meeting Duration", "Email", "Participant ID (UPN)", "Role"},
		{"Alice Smith", "03/21/24, 02:14:00 PM", "03/21/24, 03:01:00 PM", "47m", "alice@example.com", "alice@example.com", "Organizer"},
		{"Bob Jones", "03/21/24, 02:20:30 PM", "03/21/24, 02:50:00 PM", "29m 30s", "bob@example.com", "bob@example.com", "Presenter"},
		{},
		{"3. In-Meeting Activities"},
		{"Name", "Join Time", "Leave Time", "Duration", "Email", "Role"},
		{"Alice Smith", "03/21/24, 02:14:00 PM", "03/21/24, 02:40:00 PM", "26m", "alice@example.com", "Organizer"},
		{"Bob Jones", "03/21/24, 02:20:30 PM", "03/21/24, 02:50:00 PM", "29m 30s", "bob@example.com", "Presenter"},
		{"Alice Smith", "03/21/24, 02:45:00 PM", "03/21/24, 03:01:00 PM", "16m", "alice@example.com", "Organizer"},
		{},
		{"4. Explicit Audio and Video Consent Information"},
		{"Name", "Email", "Consent"},
		{"Alice Smith", "alice@example.com", "Yes"},
	}
}
