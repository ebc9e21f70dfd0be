// Package fetch holds the page fetch adapters and the embedded state
// extraction they share.
//
// Adapters:
//   - httpfetch: plain HTTP client, parses the HTML with goquery
//   - browser: headless Chrome through chromedp, for pages that only
//     carry their state after scripts run
package fetch
