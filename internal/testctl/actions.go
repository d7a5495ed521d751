package testctl

// Indirection layer to allow stubbing in tests

var (
	fnInstallGo = installGo
	fnBuild     = buildBinaries

	fnRunGoTests          = runGoTests
	fnRunIntegrationTests = runIntegrationTests
	fnRunBlackboxTests    = runBlackboxTests

	fnSmokeWorker = smokeWorker
	fnSmokeServer = smokeServer
)
