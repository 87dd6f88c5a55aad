/*
Package framerelay serves third-party pages so they can be shown in the
portal's embedded frame.

The relay fetches the page server side with a browser user agent, removes
the headers that forbid framing, and rewrites root-relative asset paths to
absolute ones so the page still resolves its own resources when served from
this origin. Compressed upstream bodies are decoded first. With sanitize=1
the document is additionally passed through a UGC sanitizing policy.
*/
package framerelay
