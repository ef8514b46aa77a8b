package widget

// Step identifiers the pricing pipeline reads. They match the step ids the
// moving-company wizard template ships with.
const (
	StepProjectScope        = "project-scope"
	StepServiceSelection    = "service-selection"
	StepServiceType         = "service-type"
	StepLocationType        = "location-type"
	StepTimeSelection       = "time-selection"
	StepOriginChallenges    = "origin-challenges"
	StepTargetChallenges    = "target-challenges"
	StepDistanceCalculation = "distance-calculation"
	StepAdditionalServices  = "additional-services"
	StepSupplySelection     = "supply-selection"
)

// MultiplierSteps lists the single-select steps whose options scale the base
// price, in application order.
var MultiplierSteps = []string{
	StepServiceSelection,
	StepServiceType,
	StepLocationType,
	StepTimeSelection,
}
