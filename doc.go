// Package razerdoctor troubleshoots an OpenRazer installation on Linux.
//
// It inspects the pieces a working setup needs (daemon, Python library,
// DKMS kernel module, Secure Boot state, plugdev membership, sysfs
// permissions and release currency) and returns a checklist of results,
// each with remediation hints for the user.
//
// # Running the checklist
//
//	report, err := razerdoctor.Run(ctx)
//	switch {
//	case errors.Is(err, razerdoctor.ErrUnsupportedPlatform):
//	    // not Linux: nothing to check
//	case err != nil:
//	    var re *razerdoctor.RunError
//	    if errors.As(err, &re) {
//	        log.Fatalf("check %s failed unexpectedly: %v", re.Check, re.Err)
//	    }
//	    log.Fatal(err)
//	}
//	fmt.Print(report)
//
// A run is all or nothing: an unexpected fault in any check aborts the
// run and no partial report is returned.
//
// # Results
//
// [CheckResult] carries a tri-state [Status]:
//   - [StatusPass]: the check is satisfied
//   - [StatusFail]: the check found a problem; see Suggestions
//   - [StatusUnknown]: the check could not decide (no network, ambiguous
//     firmware state, library missing)
//
// Some checks contribute no result at all: Secure Boot on non-EFI systems
// and the sysfs permission check when the daemon has never written a log.
// The DKMS check contributes four.
//
// # Options
//
// Strings are passed through a [Translator] (see [WithTranslator] and
// [NewCatalogTranslator]). Probed paths can be rooted elsewhere with
// [WithHostRoot]; subprocesses go through a [Commander]. The library probe
// runs once per process ([DetectLibrary]) unless [WithLibrary] supplies it.
package razerdoctor
