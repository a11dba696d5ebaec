// Package panel implements the advance appointment wizard.
//
// A [Controller] owns one [State] and is the only thing that mutates it. User actions arrive as
// [Command] values through [Controller.Dispatch]; the three network calls are split in two halves
// so a renderer can run them off its event loop and feed the results back:
//
//	BeginSession / ResolveRepairOrder   (Open runs both)
//	RequestCounts / ResolveCounts       (FetchCounts runs both)
//	BeginSubmit / ResolveSubmit         (Submit runs both)
//
// # Screens
//
//	1 schedule      ChangeInterval, SelectDate, Continue
//	2 services      ToggleService, SetAppointmentType, SetNotes, Back, Submit
//	3 confirmation  terminal
//
// Close is accepted on every screen and discards all state. Anything else returns
// [ErrIllegalTransition].
//
// # Derived values
//
// [Recommend] gives today + N calendar months and mileage + interval. [DateWindow] gives the
// Monday..Friday around the recommended date; a draft date outside it snaps to the Monday.
// [Classify] splits jobs into performed and declined lists and [ComposePurpose] renders the
// selections into the purpose of visit. [Controller.View] recomputes all of it on every call.
//
// # Persistence
//
// Every mutation writes the state to [Storage] under [StateKey]; [OpenKey] records whether the panel
// should reopen. Write failures are logged at debug level and never surface. [Hydrate] validates
// each persisted field on its own and falls back to defaults.
package panel
