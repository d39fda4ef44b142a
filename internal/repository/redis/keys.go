package redis

import "fmt"

const ns = "tonight:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventFeed(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:feed", ns, eventID)
}

func KeyEventPeople(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:people", ns, eventID)
}

func KeyEventMenu(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:menu", ns, eventID)
}

func KeyEventList(venueID int64) string {
	return fmt.Sprintf("%s:events:upcoming:%d", ns, venueID)
}

func KeyVenues() string {
	return ns + ":venues"
}

func KeyUserByExternal(externalID string) string {
	return fmt.Sprintf("%s:user:ext:%s", ns, externalID)
}

func ChannelFeedChanged(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:changed", ns, eventID)
}
